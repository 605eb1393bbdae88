package extractor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineSupports(t *testing.T) {
	e := NewEngine()

	assert.True(t, e.Supports("pdf"))
	assert.True(t, e.Supports("PDF"))
	assert.True(t, e.Supports("docx"))
	assert.True(t, e.Supports("html"))
	assert.True(t, e.Supports("txt"))
	assert.False(t, e.Supports("hwp"))
	assert.False(t, e.Supports("xls"))
}

func TestEngineExtract_PlainText(t *testing.T) {
	e := NewEngine()

	result, err := e.Extract(context.Background(), []byte("2024학년도 수능 수학"), "txt")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "2024학년도 수능 수학", result.Text)
}

func TestEngineExtract_HTML(t *testing.T) {
	e := NewEngine()
	content := []byte(`<html><head><title>자료실</title><script>ignore()</script></head>
<body><nav>메뉴</nav><p>첫 문단</p><div>둘째 문단</div></body></html>`)

	result, err := e.Extract(context.Background(), content, "html")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "자료실", result.Info.Title)
	assert.Contains(t, result.Text, "첫 문단")
	assert.Contains(t, result.Text, "둘째 문단")
	assert.NotContains(t, result.Text, "ignore")
	assert.NotContains(t, result.Text, "메뉴")
}

func TestEngineExtract_DOCXBadSignature(t *testing.T) {
	e := NewEngine()

	result, err := e.Extract(context.Background(), []byte("not a zip archive"), "docx")

	require.Error(t, err)
	var procErr *ProcessingError
	assert.ErrorAs(t, err, &procErr)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "ZIP")
}

func TestEngineExtract_UnsupportedType(t *testing.T) {
	e := NewEngine()

	result, err := e.Extract(context.Background(), []byte("data"), "hwp")

	require.Error(t, err)
	var procErr *ProcessingError
	assert.ErrorAs(t, err, &procErr)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "hwp")
}
