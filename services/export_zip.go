package services

import (
	"context"
	"fmt"
	"strings"
)

// ZipSerializer bundles several formats into one archive. Each member is
// named bill_summary.<ext>.
type ZipSerializer struct {
	members []Serializer
}

// NewZipSerializer returns a ZIP serializer over the given members, skipping
// nil entries.
func NewZipSerializer(members ...Serializer) *ZipSerializer {
	z := &ZipSerializer{}
	for _, m := range members {
		if m != nil {
			z.members = append(z.members, m)
		}
	}
	return z
}

func (*ZipSerializer) Format() Format      { return FormatZIP }
func (*ZipSerializer) Extension() string   { return "zip" }
func (*ZipSerializer) ContentType() string { return "application/zip" }

// Serialize runs every member and writes the archive. A failing member is
// left out and its error is listed in errors.txt, so one broken format never
// takes the bundle down with it. The bundle fails only when every member does.
func (z *ZipSerializer) Serialize(ctx context.Context, doc *BillDocument) ([]byte, error) {
	files := make([]ZipEntry, 0, len(z.members)+1)
	var failures []string
	var lastErr error
	for _, m := range z.members {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := serializeMember(ctx, m, doc.Clone())
		if err != nil {
			lastErr = fmt.Errorf("zip member %s: %w", m.Format(), err)
			failures = append(failures, fmt.Sprintf("bill_summary.%s: %v", m.Extension(), err))
			continue
		}
		files = append(files, ZipEntry{Name: "bill_summary." + m.Extension(), Data: data, Modified: doc.GeneratedAt})
	}
	if len(files) == 0 && lastErr != nil {
		return nil, lastErr
	}
	if len(failures) > 0 {
		files = append(files, ZipEntry{Name: "errors.txt", Data: []byte(strings.Join(failures, "\n") + "\n"), Modified: doc.GeneratedAt})
	}
	return WriteZip(files)
}

func serializeMember(ctx context.Context, m Serializer, doc *BillDocument) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return m.Serialize(ctx, doc)
}
