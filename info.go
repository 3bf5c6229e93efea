package main

import (
	"context"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

// PrintInfo 输出归档头信息和元数据
func PrintInfo(ctx context.Context, tm *TileMap, w io.Writer) error {
	r := tm.Reader
	h := r.Header()
	b := r.Bounds()
	center, zoom := r.Center()

	fmt.Fprintf(w, "archive:              %s\n", tm.URL)
	fmt.Fprintf(w, "spec version:         %d\n", h.SpecVersion)
	fmt.Fprintf(w, "tile type:            %s (vector: %t)\n", r.TileType(), r.IsVector())
	fmt.Fprintf(w, "tile compression:     %s\n", r.TileCompression())
	fmt.Fprintf(w, "internal compression: %s\n", h.InternalCompression)
	fmt.Fprintf(w, "zoom:                 %d-%d\n", r.MinZoom(), r.MaxZoom())
	fmt.Fprintf(w, "bounds:               %g,%g,%g,%g\n", b.Min[0], b.Min[1], b.Max[0], b.Max[1])
	fmt.Fprintf(w, "center:               %g,%g z%d\n", center[0], center[1], zoom)
	fmt.Fprintf(w, "addressed tiles:      %d\n", h.AddressedTilesCount)
	fmt.Fprintf(w, "tile entries:         %d\n", h.TileEntriesCount)
	fmt.Fprintf(w, "tile contents:        %d\n", h.TileContentsCount)
	fmt.Fprintf(w, "clustered:            %t\n", h.Clustered)

	md, err := r.Metadata(ctx)
	if err != nil {
		return err
	}
	out, err := jsoniter.MarshalIndent(md, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "metadata:\n%s\n", out)
	return nil
}
