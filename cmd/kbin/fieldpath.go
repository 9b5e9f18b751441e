package main

import (
	"fmt"
	"strconv"
	"strings"
)

// extractField walks v according to a dotted/bracket path such as
// "a.b[2].c" (§6.2 "--field <dotted.path>"), applied to the plain Go value
// tree produced by api.Dump.
func extractField(v any, path string) (any, error) {
	for _, seg := range splitFieldPath(path) {
		if seg.isIndex {
			arr, ok := v.([]any)
			if !ok {
				return nil, fmt.Errorf("field path: %q is not an array", seg.raw)
			}
			if seg.index < 0 || seg.index >= len(arr) {
				return nil, fmt.Errorf("field path: index %d out of range (len %d)", seg.index, len(arr))
			}
			v = arr[seg.index]
			continue
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("field path: %q is not an object", seg.raw)
		}
		next, ok := m[seg.name]
		if !ok {
			return nil, fmt.Errorf("field path: no such field %q", seg.name)
		}
		v = next
	}
	return v, nil
}

type pathSegment struct {
	raw     string
	name    string
	isIndex bool
	index   int
}

// splitFieldPath tokenizes "a.b[2].c" into [{name:"a"} {name:"b"} {index:2} {name:"c"}].
func splitFieldPath(path string) []pathSegment {
	var segs []pathSegment
	for _, dotPart := range strings.Split(path, ".") {
		for len(dotPart) > 0 {
			open := strings.IndexByte(dotPart, '[')
			if open < 0 {
				segs = append(segs, pathSegment{raw: dotPart, name: dotPart})
				break
			}
			if open > 0 {
				segs = append(segs, pathSegment{raw: dotPart[:open], name: dotPart[:open]})
			}
			closeBr := strings.IndexByte(dotPart, ']')
			if closeBr < open {
				segs = append(segs, pathSegment{raw: dotPart})
				break
			}
			idx, _ := strconv.Atoi(dotPart[open+1 : closeBr])
			segs = append(segs, pathSegment{raw: dotPart[open : closeBr+1], isIndex: true, index: idx})
			dotPart = dotPart[closeBr+1:]
		}
	}
	return segs
}
