package i18n

import (
	"testing"

	"github.com/bcnelson/erp-console/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalizeKorean(t *testing.T) {
	b, err := New("ko")
	require.NoError(t, err)
	l := b.Localizer("ko")

	assert.Equal(t, "조회 권한이 없습니다.", l.T(domain.MsgDeniedView, nil))
	assert.Equal(t, "다운로드 권한이 없습니다.", l.T(domain.MsgDeniedDownload, nil))
	assert.Equal(t, "총 3건", l.T("UI.Total", map[string]any{"Count": 3}))
	assert.Equal(t, "선택한 거래처 코드 항목을 삭제하시겠습니까?",
		l.T(domain.MsgConfirmDelete, map[string]any{"Title": "거래처 코드"}))
}

func TestNoticeAppendsDetail(t *testing.T) {
	b, err := New("ko")
	require.NoError(t, err)
	l := b.Localizer("ko")

	got := l.Notice(domain.Inline(domain.MsgSearchFailed, "timeout"))
	assert.Equal(t, "데이터를 불러오는 중 오류 발생: timeout", got)
	assert.Equal(t, "", l.Notice(nil))
}

func TestEnglishAndFallback(t *testing.T) {
	b, err := New("ko")
	require.NoError(t, err)

	assert.Equal(t, "Select an item to edit.", b.Localizer("en").T(domain.MsgSelectForEdit, nil))
	assert.Equal(t, "수정할 항목을 선택해주세요.", b.Localizer("fr").T(domain.MsgSelectForEdit, nil))
	assert.Equal(t, "Missing.Id", b.Localizer("ko").T("Missing.Id", nil))
}

func TestMatch(t *testing.T) {
	b, err := New("ko")
	require.NoError(t, err)

	assert.Equal(t, "ko", b.Default())
	assert.Equal(t, "en", b.Match("en-US,en;q=0.9"))
	assert.Equal(t, "ko", b.Match("ko-KR"))
	assert.Equal(t, "ko", b.Match("fr-FR"))
	assert.Equal(t, "ko", b.Match(""))
}
