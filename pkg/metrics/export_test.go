package metrics

var NormalizePath = normalizePath
