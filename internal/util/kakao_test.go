package util

import (
	"strings"
	"testing"
)

func TestApplyKakaoSeeMorePadding(t *testing.T) {
	got := ApplyKakaoSeeMorePadding("body", " head ")
	if !strings.HasPrefix(got, "head"+KakaoZeroWidthSpace) {
		t.Fatalf("instruction must lead, got %q", got[:20])
	}
	if strings.Count(got, KakaoZeroWidthSpace) != KakaoSeeMorePadding {
		t.Fatalf("padding count mismatch")
	}
	if !strings.HasSuffix(got, "\nbody") {
		t.Fatalf("body must follow a newline")
	}
	if ApplyKakaoSeeMorePadding("  ", "head") != "  " {
		t.Fatalf("blank text must pass through")
	}
}

func TestFoldLongMessage(t *testing.T) {
	short := "a\nb\nc"
	if FoldLongMessage(short, 3) != short {
		t.Fatalf("short message must not fold")
	}
	long := "🏆 TOP 10 PLAYERS\n1. a\n2. b\n3. c"
	got := FoldLongMessage(long, 3)
	if !strings.HasPrefix(got, "🏆 TOP 10 PLAYERS"+KakaoZeroWidthSpace) {
		t.Fatalf("header must stay above the fold")
	}
	if !strings.HasSuffix(got, "\n1. a\n2. b\n3. c") {
		t.Fatalf("body lost: %q", got)
	}
	if FoldLongMessage(strings.Repeat("x\n", KakaoFoldLines-1)+"x", 0) != strings.Repeat("x\n", KakaoFoldLines-1)+"x" {
		t.Fatalf("default threshold must keep %d lines unfolded", KakaoFoldLines)
	}
}
