package diffparse

import "strings"

// languageNames maps a lowercase file extension to a human-readable language
// name for AI prompt context. Lookup misses resolve to "Unknown".
var languageNames = map[string]string{
	"go":      "Go",
	"js":      "JavaScript",
	"jsx":     "JavaScript",
	"mjs":     "JavaScript",
	"cjs":     "JavaScript",
	"ts":      "TypeScript",
	"tsx":     "TypeScript",
	"vue":     "Vue",
	"svelte":  "Svelte",
	"py":      "Python",
	"java":    "Java",
	"kt":      "Kotlin",
	"kts":     "Kotlin",
	"rb":      "Ruby",
	"php":     "PHP",
	"cs":      "C#",
	"c":       "C",
	"h":       "C",
	"cpp":     "C++",
	"cc":      "C++",
	"cxx":     "C++",
	"hpp":     "C++",
	"rs":      "Rust",
	"swift":   "Swift",
	"m":       "Objective-C",
	"scala":   "Scala",
	"dart":    "Dart",
	"lua":     "Lua",
	"r":       "R",
	"pl":      "Perl",
	"sh":      "Shell",
	"bash":    "Shell",
	"zsh":     "Shell",
	"ps1":     "PowerShell",
	"sql":     "SQL",
	"html":    "HTML",
	"htm":     "HTML",
	"css":     "CSS",
	"scss":    "SCSS",
	"less":    "Less",
	"json":    "JSON",
	"yaml":    "YAML",
	"yml":     "YAML",
	"toml":    "TOML",
	"xml":     "XML",
	"md":      "Markdown",
	"tf":      "Terraform",
	"proto":   "Protocol Buffers",
	"graphql": "GraphQL",
}

// Language resolves a file extension to a human-readable language name,
// case-insensitively. Unrecognized extensions return "Unknown".
func Language(extension string) string {
	if name, ok := languageNames[strings.ToLower(extension)]; ok {
		return name
	}
	return "Unknown"
}
