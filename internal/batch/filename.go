package batch

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/mozillazg/go-pinyin"
)

// maxSlugRunes 限制文件名中文本摘要部分的长度。
const maxSlugRunes = 32

// OutputFilename 根据任务序号和文本生成输出文件路径。
// 汉字转为无声调拼音，其他字符只保留字母和数字；
// 附加短随机后缀避免相同文本互相覆盖。
func OutputFilename(dir string, index int, text string) string {
	slug := slugify(text)
	suffix := strings.Split(uuid.NewString(), "-")[0]
	name := fmt.Sprintf("%03d_%s_%s.wav", index, slug, suffix)
	return filepath.Join(dir, name)
}

func slugify(text string) string {
	args := pinyin.NewArgs()
	args.Style = pinyin.Normal

	var b strings.Builder
	var lastWasSep bool
	for _, char := range text {
		if b.Len() >= maxSlugRunes {
			break
		}
		switch {
		case unicode.Is(unicode.Han, char):
			pinyins := pinyin.Pinyin(string(char), args)
			if len(pinyins) > 0 && len(pinyins[0]) > 0 {
				if b.Len() > 0 && !lastWasSep {
					b.WriteByte('-')
				}
				b.WriteString(pinyins[0][0])
				b.WriteByte('-')
				lastWasSep = true
			}
		case unicode.IsLetter(char) || unicode.IsDigit(char):
			b.WriteRune(unicode.ToLower(char))
			lastWasSep = false
		case unicode.IsSpace(char) || char == '-' || char == '_':
			if b.Len() > 0 && !lastWasSep {
				b.WriteByte('-')
				lastWasSep = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "audio"
	}
	if runes := []rune(slug); len(runes) > maxSlugRunes {
		slug = strings.Trim(string(runes[:maxSlugRunes]), "-")
	}
	return slug
}
