package util

import "strings"

const (
	KakaoSeeMorePadding = 500
	KakaoZeroWidthSpace = "\u200b"
	// KakaoFoldLines 이하의 메시지는 접지 않는다.
	KakaoFoldLines = 12
)

// ApplyKakaoSeeMorePadding는 instruction 뒤에 제로폭 문자를 채워 text를 '전체보기' 아래로 보낸다.
func ApplyKakaoSeeMorePadding(text, instruction string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sep := "\n"
	if strings.HasPrefix(text, "\n") {
		sep = ""
	}
	return strings.TrimSpace(instruction) + seeMoreFill + sep + text
}

var seeMoreFill = strings.Repeat(KakaoZeroWidthSpace, KakaoSeeMorePadding)

// 긴 메시지는 첫 줄을 머리말로 남기고 나머지를 '전체보기' 아래로 접는다.
func FoldLongMessage(text string, maxLines int) string {
	if maxLines <= 0 {
		maxLines = KakaoFoldLines
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.Count(trimmed, "\n")+1 <= maxLines {
		return text
	}
	header, body, _ := strings.Cut(trimmed, "\n")
	body = strings.TrimLeft(body, "\r\n")
	return ApplyKakaoSeeMorePadding(body, header)
}
