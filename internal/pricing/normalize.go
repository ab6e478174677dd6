package pricing

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeTime 把历史数据中的时间写法整理成表中的格式：
// AM/PM 前补一个空格，连字符两边各一个空格，连续空白合并为一个并去掉首尾空白。
// 不修正大小写。对任意输入都是幂等的。
func NormalizeTime(raw string) string {
	var b strings.Builder
	b.Grow(len(raw) + 8)

	var prev rune = -1
	for i := 0; i < len(raw); {
		if hasMeridiemAt(raw, i) {
			if prev != -1 && !unicode.IsSpace(prev) {
				b.WriteByte(' ')
			}
			b.WriteString(raw[i : i+2])
			prev = 'M'
			i += 2
			continue
		}

		r, size := utf8.DecodeRuneInString(raw[i:])
		if r == '-' {
			b.WriteString(" - ")
			prev = ' '
		} else {
			b.WriteRune(r)
			prev = r
		}
		i += size
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

func hasMeridiemAt(s string, i int) bool {
	if i+2 > len(s) {
		return false
	}
	return (s[i] == 'A' || s[i] == 'P') && s[i+1] == 'M'
}
