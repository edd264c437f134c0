/*
 * @module service/extractor/encoding
 * @description 源数据编码转换，处理带BOM的UTF-8和GBK编码的CSV导出
 * @architecture 工具函数 - 基于golang.org/x/text的流式转码
 * @documentReference dev_docs/etl_requirements.md
 * @stateFlow 原始字节流 -> 按配置转码 -> UTF-8字节流
 * @rules 未知编码名按UTF-8处理并剥离BOM
 * @dependencies golang.org/x/text/encoding
 * @refs service/extractor/sheets.go
 */

package extractor

import (
	"io"
	"strings"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeReader 按编码名包装读取器，输出UTF-8内容
func DecodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "gbk", "gb2312":
		return transform.NewReader(r, simplifiedchinese.GBK.NewDecoder()), nil
	default:
		// UTF-8时仍需剥离可能存在的BOM，否则首列名会被污染
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder()), nil
	}
}
