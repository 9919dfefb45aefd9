// Package mosaic は郵便番号の人口統計セグメント解決と、セグメントごとの重みによる推薦を提供する。
package mosaic

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/newleaf/newleaf/internal/model"
)

// SegmentSource は郵便番号からセグメントを引く情報源。
// 該当がない場合は(nil, nil)を返す。
type SegmentSource interface {
	Lookup(ctx context.Context, postcode string) (*model.PostcodeSegment, error)
}

// NormalizePostcode は空白を除去し大文字化した郵便番号を返す。
func NormalizePostcode(postcode string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, postcode)
}

// PostcodePrefix はデータファイル名に使う接頭辞を返す。
// 小文字化した先頭2文字で、2文字目が数字の場合は先頭1文字のみ。
func PostcodePrefix(postcode string) string {
	p := []rune(strings.ToLower(NormalizePostcode(postcode)))
	switch {
	case len(p) == 0:
		return ""
	case len(p) == 1 || unicode.IsDigit(p[1]):
		return string(p[:1])
	default:
		return string(p[:2])
	}
}

var prefixPattern = regexp.MustCompile(`^[a-z]{1,2}$`)

// CSVSegmentSource は接頭辞ごとのCSVファイル（<prefix>.csv）からセグメントを引く。
// 列はPostcode,Type,Eastings,Northings。
type CSVSegmentSource struct {
	dir string
}

// NewCSVSegmentSource はCSVSegmentSourceを生成する。
func NewCSVSegmentSource(dir string) *CSVSegmentSource {
	return &CSVSegmentSource{dir: dir}
}

// Lookup は該当するCSVファイルを先頭から走査し、最初に一致した行を返す。
// ファイルがない場合や推薦対象外のセグメントの場合は(nil, nil)を返す。
func (s *CSVSegmentSource) Lookup(ctx context.Context, postcode string) (*model.PostcodeSegment, error) {
	prefix := PostcodePrefix(postcode)
	if !prefixPattern.MatchString(prefix) {
		return nil, nil
	}

	f, err := os.Open(filepath.Join(s.dir, prefix+".csv"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("郵便番号データの読み込みに失敗しました: %w", err)
	}
	defer f.Close()

	return scanSegmentCSV(ctx, f, NormalizePostcode(postcode))
}

// scanSegmentCSV はヘッダー行から列位置を決め、郵便番号が一致する行を探す。
func scanSegmentCSV(ctx context.Context, r io.Reader, want string) (*model.PostcodeSegment, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("郵便番号データのヘッダー読み取りに失敗しました: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range []string{"Postcode", "Type", "Eastings", "Northings"} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("郵便番号データに%s列がありません", name)
		}
	}

	for line := 1; ; line++ {
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("郵便番号データの読み取りに失敗しました: %w", err)
		}
		if len(rec) <= cols["Northings"] || len(rec) <= cols["Postcode"] {
			continue
		}
		if NormalizePostcode(rec[cols["Postcode"]]) != want {
			continue
		}

		code := model.SegmentCode(strings.TrimSpace(rec[cols["Type"]]))
		if !code.Valid() {
			return nil, nil
		}
		return &model.PostcodeSegment{
			Postcode:  strings.TrimSpace(rec[cols["Postcode"]]),
			Type:      code,
			Eastings:  parseGridRef(rec[cols["Eastings"]]),
			Northings: parseGridRef(rec[cols["Northings"]]),
		}, nil
	}
}

// parseGridRef は座標値を読む。"None"や不正な値は0とする。
func parseGridRef(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

var _ SegmentSource = (*CSVSegmentSource)(nil)
