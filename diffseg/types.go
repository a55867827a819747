// Package diffseg splits a unified diff into per-function change regions.
// A fixed table of per-language function-start signatures drives one generic
// scanner; function bodies are delimited by brace balance (indentation for
// Python). Captures that run past the visible diff context still yield a
// FunctionChange rather than an error.
package diffseg

import (
	"path/filepath"
	"strings"
)

// ChangeType classifies how a captured function changed.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeRemoved  ChangeType = "removed"
	ChangeModified ChangeType = "modified"
)

// CommentKind classifies a comment found near a change region.
type CommentKind string

const (
	CommentTodo          CommentKind = "todo"
	CommentDocumentation CommentKind = "documentation"
	CommentSpecification CommentKind = "specification"
	CommentGeneral       CommentKind = "general"
)

// CommentNote is a classified comment line near a function change.
type CommentNote struct {
	Text string      `json:"text"`
	Kind CommentKind `json:"kind"`
}

// FunctionChange is one function-shaped region located inside a diff hunk.
type FunctionChange struct {
	FilePath     string        `json:"file_path"`
	FunctionName string        `json:"function_name"`
	Language     string        `json:"language"`
	RawBody      string        `json:"raw_body"` // diff lines with +/- markers
	StartLine    int           `json:"start_line"`
	ChangeType   ChangeType    `json:"change_type"`
	Comments     []CommentNote `json:"comments,omitempty"`
}

// Key returns the function key used throughout the pipeline.
func (fc *FunctionChange) Key() string {
	return fc.FilePath + ":" + fc.FunctionName
}

// languageByExtension maps source file extensions to language names.
var languageByExtension = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".cjs":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".java": "java",
}

// LanguageForPath returns the language for a file path, or "" if the
// extension is not a recognized source language.
func LanguageForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return languageByExtension[ext]
}

// SourceExtensions returns the default extension allow-list.
func SourceExtensions() []string {
	exts := make([]string, 0, len(languageByExtension))
	for ext := range languageByExtension {
		exts = append(exts, ext)
	}
	return exts
}
