// Package icons maps file names to vscode-icons artwork and caches the
// fetched images.
package icons

import (
	"path"
	"strings"

	"github.com/mattsolo1/grove-structview/pkg/tree"
)

// Fallback glyphs used when no artwork applies.
const (
	FolderEmoji = "📁"
	FileEmoji   = "📄"
	ValueEmoji  = "🔹"
	WarnEmoji   = "⚠️"
)

// extToKey maps a lowercase extension to a vscode-icons file type key.
var extToKey = map[string]string{
	// Code
	"js":   "javascript",
	"jsx":  "reactjs",
	"ts":   "typescript",
	"tsx":  "reactts",
	"java": "java",
	"cs":   "csharp",
	"json": "json",
	"md":   "markdown",
	"html": "html",
	"css":  "css",
	"scss": "sass",
	"py":   "python",
	"go":   "go",
	"rs":   "rust",
	"php":  "php",
	"rb":   "ruby",
	"c":    "c",
	"cpp":  "cpp",
	"h":    "h",
	"hpp":  "hpp",
	"yml":  "yaml",
	"yaml": "yaml",
	"xml":  "xml",
	"sql":  "sql",
	"sh":   "shell",
	"bat":  "bat",
	"ps1":  "powershell",

	// Media
	"mp3":  "audio",
	"wav":  "audio",
	"flac": "audio",
	"ogg":  "audio",
	"aac":  "audio",
	"m4a":  "audio",
	"mp4":  "video",
	"mkv":  "video",
	"avi":  "video",
	"mov":  "video",
	"webm": "video",
	"png":  "image",
	"jpg":  "image",
	"jpeg": "image",
	"gif":  "image",
	"webp": "image",
	"svg":  "svg",
	"ico":  "image",

	// Documents
	"pdf":  "pdf",
	"doc":  "word",
	"docx": "word",
	"ppt":  "powerpoint",
	"pptx": "powerpoint",
	"xls":  "excel",
	"xlsx": "excel",
	"txt":  "file",
	"log":  "log",

	// Archives
	"zip": "zip",
	"rar": "zip",
	"7z":  "zip",
	"tar": "zip",
	"gz":  "zip",

	// Fonts
	"ttf":   "font",
	"otf":   "font",
	"woff":  "font",
	"woff2": "font",

	// Config
	"env":  "settings",
	"ini":  "settings",
	"cfg":  "settings",
	"toml": "settings",

	// Binaries
	"exe":   "binary",
	"dll":   "binary",
	"so":    "binary",
	"dylib": "binary",
}

// FileExtension returns the lowercase text after the last dot of the base
// name. Dotfiles and names ending in a dot have no extension.
func FileExtension(name string) string {
	base := path.Base(name)
	i := strings.LastIndex(base, ".")
	if i <= 0 || i == len(base)-1 {
		return ""
	}
	return strings.ToLower(base[i+1:])
}

// KeyFor returns the vscode-icons key for an extension.
func KeyFor(ext string) (string, bool) {
	key, ok := extToKey[ext]
	return key, ok
}

// Badge returns a short terminal marker for a file, e.g. "[go]", or "" when
// the extension is unknown.
func Badge(name string) string {
	key, ok := KeyFor(FileExtension(name))
	if !ok {
		return ""
	}
	return "[" + key + "]"
}

// Emoji returns the fallback glyph for a node kind.
func Emoji(k tree.Kind) string {
	switch k {
	case tree.KindDirectory:
		return FolderEmoji
	case tree.KindFile:
		return FileEmoji
	default:
		return ValueEmoji
	}
}
