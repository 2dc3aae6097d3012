// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown converts item content into HTML using goldmark.
// Content is free text written in the admin form: line breaks are kept as
// written, raw HTML passes through, and a line holding nothing but an image
// URL is shown as that image.
package markdown

import (
	"bytes"
	"net/url"
	"path"
	"strings"

	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// md is the configured goldmark instance, reused across calls.
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
		highlighting.NewHighlighting(
			highlighting.WithStyle("monokai"),
			highlighting.WithFormatOptions(),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(), // single newlines become <br>
		html.WithUnsafe(),    // editors paste raw HTML snippets
	),
)

// imageExts are path suffixes treated as direct image links.
var imageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".avif": true,
}

// ToHTML converts item content into HTML.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(embedImages(source)), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// embedImages rewrites lines that consist only of an image URL into
// Markdown image syntax. Lines inside fenced code blocks are left alone.
func embedImages(source string) string {
	lines := strings.Split(source, "\n")
	fenced := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fenced = !fenced
			continue
		}
		if !fenced && IsImageURL(trimmed) {
			lines[i] = "![](" + trimmed + ")"
		}
	}
	return strings.Join(lines, "\n")
}

// IsImageURL reports whether s is an absolute http(s) URL that points at
// an image: either its path ends in an image extension or it is an image
// host delivery URL.
func IsImageURL(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	if imageExts[strings.ToLower(path.Ext(u.Path))] {
		return true
	}
	return strings.Contains(u.Path, "/image/upload/")
}
