// Package util provides content hashing and front matter parsing for draft content.
package util

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gomarkdown/markdown"
	"github.com/mmarkdown/mmark/v2/mast"
)

var ErrNoFrontMatter = errors.New("invalid front matter format")

var frontMatterDelimiter = []byte("%%%")

type FrontMatter struct {
	*mast.TitleData
	// Consumed is the number of bytes of the normalised input taken by the block.
	Consumed int
}

func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// ParseFrontMatter decodes a leading %%%-delimited TOML block.
func ParseFrontMatter(md []byte) (*FrontMatter, error) {
	md = markdown.NormalizeNewlines(md)
	md = bytes.TrimLeft(md, "\n \t\r")

	if !bytes.HasPrefix(md, frontMatterDelimiter) {
		return nil, ErrNoFrontMatter
	}

	body := md[len(frontMatterDelimiter):]
	closing := bytes.Index(body, frontMatterDelimiter)
	if closing == -1 {
		return nil, ErrNoFrontMatter
	}

	end := len(frontMatterDelimiter) + closing + len(frontMatterDelimiter)
	// The closing delimiter must be followed by a line break.
	if end >= len(md) || md[end] != '\n' {
		return nil, ErrNoFrontMatter
	}

	info := &FrontMatter{TitleData: &mast.TitleData{}}
	if _, err := toml.Decode(string(body[:closing]), info.TitleData); err != nil {
		return nil, fmt.Errorf("failed to decode front matter: %w", err)
	}

	if info.Language == "" {
		info.Language = "en"
	}
	info.Consumed = end + 1

	return info, nil
}

// Title returns the front matter title, falling back to the first level-one
// heading. It returns "" when neither exists.
func Title(md []byte) string {
	body := markdown.NormalizeNewlines(md)
	if fm, err := ParseFrontMatter(body); err == nil {
		if fm.Title != "" {
			return fm.Title
		}
		body = bytes.TrimLeft(body, "\n \t\r")[fm.Consumed:]
	}

	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}
