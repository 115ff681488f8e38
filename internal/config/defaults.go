package config

// Project layout defaults, relative to the project directory.
const (
	DefaultOutputDir    = "_output"
	DefaultTemplateDir  = "_templates"
	DefaultLibDir       = "_lib"
	DefaultSettingsFile = "_config.yml"
)

const (
	DefaultTemplatingEngine = "gotemplate"
	DefaultSource           = "filesystem"
	DefaultPrettyURLPattern = "$year/$month/$day/$slug/"
)

// DefaultCompressEndings lists the file endings that receive a .gz sidecar
// when compressed copies are enabled.
var DefaultCompressEndings = []string{
	".css", ".js", ".xml", ".txt", ".sh", ".svg", ".xls", ".doc", ".xjs",
	".psd", ".ppt", ".java", ".py", ".pyc", ".pyo", ".bat", ".dll", ".lib",
	".cfg", ".ini", ".json",
}
