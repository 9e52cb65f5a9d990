// Package textnorm 提供所有比對共用的文字正規化。
//
// 索引中的別名、使用者輸入、意圖片語與術語別名都必須經過同一個 Normalize，
// 否則 ё/е 之類的變體會讓相同的詞比對失敗。
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// letterVariants 視為同一字母的變體
var letterVariants = strings.NewReplacer(
	"ё", "е",
)

// Normalize 組合 NFC、大小寫摺疊，再合併字母變體
func Normalize(s string) string {
	if s == "" {
		return s
	}
	// cases.Caser 不可併發共用，每次建立
	folded := cases.Fold().String(norm.NFC.String(s))
	return letterVariants.Replace(folded)
}

// IsWordRune 判斷是否為詞字元，與正規表示式 \w 的 Unicode 定義一致
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// IndexWord 在 haystack 中從 from 開始尋找 needle 的第一個完整詞出現位置。
// 邊界規則同 \b：needle 首尾與相鄰字元必須一個是詞字元、一個不是。
// 找不到時回傳 -1。
func IndexWord(haystack, needle []rune, from int) int {
	n := len(needle)
	if n == 0 {
		return -1
	}
	for i := from; i+n <= len(haystack); i++ {
		if !equalAt(haystack, needle, i) {
			continue
		}
		if atBoundary(haystack, i) && atBoundary(haystack, i+n) {
			return i
		}
	}
	return -1
}

// ContainsWord 判斷 text 是否包含完整詞 word，兩者都應已正規化
func ContainsWord(text, word string) bool {
	return IndexWord([]rune(text), []rune(word), 0) >= 0
}

func equalAt(haystack, needle []rune, i int) bool {
	for j, r := range needle {
		if haystack[i+j] != r {
			return false
		}
	}
	return true
}

// atBoundary 位置 i 左右兩側字元的詞性不同即為邊界
func atBoundary(s []rune, i int) bool {
	before := i > 0 && IsWordRune(s[i-1])
	after := i < len(s) && IsWordRune(s[i])
	return before != after
}
