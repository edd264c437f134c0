/*
 * @module service/extractor/sheets_test
 * @description SheetsExtractor 单元测试
 * @architecture 测试层 - 单元测试
 */

package extractor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSheetsExtractor_Extract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("gid") {
		case "100":
			w.Write([]byte("id,uuid,content\n1,a,hello\n2,b,\n"))
		case "200":
			w.Write([]byte("message_uuid,status,timestamp\na,sent,2024-01-01T00:00:00\n"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	extractor := NewSheetsExtractor(SheetsConfig{
		BaseURL:     server.URL + "/export?format=csv",
		MessagesGID: "100",
		StatusesGID: "200",
	}, nil)

	messages, statuses, err := extractor.Extract(context.Background())
	require.NoError(t, err)

	require.Len(t, messages, 2)
	assert.Equal(t, "1", messages[0]["id"])
	assert.Equal(t, "hello", messages[0]["content"])
	// 空单元格解析为空值
	assert.Nil(t, messages[1]["content"])

	require.Len(t, statuses, 1)
	assert.Equal(t, "sent", statuses[0]["status"])
}

func TestSheetsExtractor_TabFailureDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("gid") == "100" {
			w.Write([]byte("id,uuid\n1,a\n"))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	extractor := NewSheetsExtractor(SheetsConfig{
		BaseURL:     server.URL + "/export?format=csv",
		MessagesGID: "100",
		StatusesGID: "200",
	}, nil)

	// 单个标签页失败降级为空表，不中断整体抽取
	messages, statuses, err := extractor.Extract(context.Background())
	require.NoError(t, err)
	assert.Len(t, messages, 1)
	assert.Empty(t, statuses)
}

func TestSheetsExtractor_BOMStripped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("\xef\xbb\xbfid,uuid\n1,a\n"))
	}))
	defer server.Close()

	extractor := NewSheetsExtractor(SheetsConfig{
		BaseURL:     server.URL + "/export?format=csv",
		MessagesGID: "100",
		StatusesGID: "100",
	}, nil)

	messages, _, err := extractor.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, messages, 1)

	// BOM被剥离后首列名干净
	_, exists := messages[0]["id"]
	assert.True(t, exists)
	assert.Equal(t, "1", messages[0]["id"])
}
