// Package courseio moves whole courses in and out of the platform as files:
// the JSON export/import pair, YAML course sources, directory imports and a
// spreadsheet outline for review.
package courseio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// strippedKeys are server-owned fields removed from every level on export.
var strippedKeys = map[string]bool{
	"id":        true,
	"createdBy": true,
	"createdAt": true,
	"updatedAt": true,
}

// Export serializes a course for download: server-owned keys are removed at
// every depth, key order is kept and the result is indented by two spaces.
func Export(course any) ([]byte, error) {
	var raw bytes.Buffer
	enc := json.NewEncoder(&raw)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(course); err != nil {
		return nil, fmt.Errorf("encode course: %w", err)
	}

	dec := json.NewDecoder(&raw)
	dec.UseNumber()
	var compact bytes.Buffer
	if err := copyStripped(dec, &compact); err != nil {
		return nil, fmt.Errorf("strip course: %w", err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("indent course: %w", err)
	}
	return out.Bytes(), nil
}

// copyStripped copies one JSON value from dec to out, dropping stripped keys.
func copyStripped(dec *json.Decoder, out *bytes.Buffer) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			out.WriteByte('{')
			first := true
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return err
				}
				key, _ := kt.(string)
				if strippedKeys[key] {
					var skip json.RawMessage
					if err := dec.Decode(&skip); err != nil {
						return err
					}
					continue
				}
				if !first {
					out.WriteByte(',')
				}
				first = false
				writeString(out, key)
				out.WriteByte(':')
				if err := copyStripped(dec, out); err != nil {
					return err
				}
			}
			if _, err := dec.Token(); err != nil {
				return err
			}
			out.WriteByte('}')
		case '[':
			out.WriteByte('[')
			first := true
			for dec.More() {
				if !first {
					out.WriteByte(',')
				}
				first = false
				if err := copyStripped(dec, out); err != nil {
					return err
				}
			}
			if _, err := dec.Token(); err != nil {
				return err
			}
			out.WriteByte(']')
		}
	case string:
		writeString(out, v)
	case json.Number:
		out.WriteString(v.String())
	case bool:
		if v {
			out.WriteString("true")
		} else {
			out.WriteString("false")
		}
	case nil:
		out.WriteString("null")
	}
	return nil
}

func writeString(out *bytes.Buffer, s string) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	out.Write(bytes.TrimRight(b.Bytes(), "\n"))
}

// ExportFilename is the download name for a course title.
func ExportFilename(title string) string {
	return Slug(title) + ".json"
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

var translit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "h", 'ґ': "g", 'д': "d",
	'е': "e", 'є': "ye", 'ё': "yo", 'ж': "zh", 'з': "z", 'и': "y",
	'і': "i", 'ї': "yi", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
	'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t",
	'у': "u", 'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh",
	'щ': "shch", 'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu",
	'я': "ya",
}

// Slug turns a title into a lowercase ASCII file stem. Cyrillic is
// transliterated and accents are dropped; an empty result becomes "course".
func Slug(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if rep, ok := translit[r]; ok {
			b.WriteString(rep)
			continue
		}
		b.WriteRune(r)
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, b.String())
	if err != nil {
		s = b.String()
	}
	s = strings.Trim(nonSlug.ReplaceAllString(s, "-"), "-")
	if s == "" {
		return "course"
	}
	return s
}
