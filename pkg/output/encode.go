package output

import (
	"unicode/utf8"

	"github.com/Sriram-PR/md-dataset/pkg/models"
)

const hexDigits = "0123456789abcdef"

// EncodeChatLine renders a record as a single dataset line, newline included:
//
//	{"messages": [{"role": "user", "content": P}, {"role": "assistant", "content": C}]}
//
// Separators are ", " and ": ". Non-ASCII text is written as raw UTF-8.
func EncodeChatLine(rec models.Record) []byte {
	line := rec.ChatLine()

	buf := make([]byte, 0, len(rec.Prompt)+len(rec.Completion)+96)
	buf = append(buf, `{"messages": [`...)
	for i, msg := range line.Messages {
		if i > 0 {
			buf = append(buf, ", "...)
		}
		buf = append(buf, `{"role": `...)
		buf = AppendString(buf, msg.Role)
		buf = append(buf, `, "content": `...)
		buf = AppendString(buf, msg.Content)
		buf = append(buf, '}')
	}
	buf = append(buf, "]}\n"...)
	return buf
}

// AppendString appends s as a quoted JSON string. Only the quote, the
// backslash and control characters below U+0020 are escaped.
// Invalid UTF-8 bytes are replaced with U+FFFD.
func AppendString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && size == 1 {
				dst = append(dst, s[start:i]...)
				dst = append(dst, "\uFFFD"...)
				i += size
				start = i
				continue
			}
			i += size
			continue
		}
		if c >= 0x20 && c != '"' && c != '\\' {
			i++
			continue
		}

		dst = append(dst, s[start:i]...)
		switch c {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		default:
			dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
		}
		i++
		start = i
	}
	dst = append(dst, s[start:]...)
	return append(dst, '"')
}
