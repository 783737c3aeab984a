package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

// ObjectInfo describes one archived object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// BucketStats summarizes a listing.
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
	SizeByKind   map[string]int64
}

// List returns every object under prefix, newest first, with a summary.
func (s *ArtifactStore) List(ctx context.Context, prefix string) ([]ObjectInfo, *BucketStats, error) {
	var objects []ObjectInfo

	objectCh := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, nil, fmt.Errorf("list objects: %w", object.Err)
		}
		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
		})
	}

	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})
	return objects, summarize(objects), nil
}

func summarize(objects []ObjectInfo) *BucketStats {
	stats := &BucketStats{SizeByKind: make(map[string]int64)}
	for _, obj := range objects {
		stats.TotalObjects++
		stats.TotalSize += obj.Size
		if obj.LastModified.After(stats.LastModified) {
			stats.LastModified = obj.LastModified
		}
		stats.SizeByKind[kindOf(obj.Key)] += obj.Size
	}
	return stats
}

// kindOf returns the top-level prefix of key, or "other".
func kindOf(key string) string {
	if i := strings.Index(key, "/"); i > 0 {
		switch kind := key[:i]; kind {
		case KindSlide, KindCombined:
			return kind
		}
	}
	return "other"
}

// PrintStatus writes a listing report for prefix to w. With statsOnly the
// per-object lines are skipped.
func (s *ArtifactStore) PrintStatus(ctx context.Context, w io.Writer, prefix string, statsOnly bool) error {
	objects, stats, err := s.List(ctx, prefix)
	if err != nil {
		return err
	}
	writeStatus(w, s.bucket, prefix, objects, stats, statsOnly)
	return nil
}

func writeStatus(w io.Writer, bucket, prefix string, objects []ObjectInfo, stats *BucketStats, statsOnly bool) {
	fmt.Fprintf(w, "Bucket: %s\n", bucket)
	if prefix != "" {
		fmt.Fprintf(w, "Prefix: %s\n", prefix)
	}
	fmt.Fprintf(w, "Objects: %d\n", stats.TotalObjects)
	fmt.Fprintf(w, "Total size: %s\n", FormatSize(stats.TotalSize))
	if !stats.LastModified.IsZero() {
		fmt.Fprintf(w, "Last modified: %s\n", stats.LastModified.Format(time.RFC3339))
	}

	kinds := make([]string, 0, len(stats.SizeByKind))
	for k := range stats.SizeByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-10s %s\n", k, FormatSize(stats.SizeByKind[k]))
	}

	if statsOnly {
		return
	}
	fmt.Fprintln(w)
	for _, obj := range objects {
		fmt.Fprintf(w, "%s  %10s  %s\n", obj.LastModified.Format(time.RFC3339), FormatSize(obj.Size), obj.Key)
	}
}

// FormatSize renders a byte count with a binary unit.
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
