package tencent

import (
	"strings"

	"github.com/komsit37/fundwl/pkg/fw/names"
	"github.com/komsit37/fundwl/pkg/fw/types"
)

// ResolveNames replaces raw vendor names with display names, in place.
// Overseas records prefer the static table so names stay consistent across
// refreshes; domestic records keep a readable vendor name.
func ResolveNames(qs []types.Quote, r *names.Resolver) {
	for i := range qs {
		qs[i].Name = resolveName(qs[i], r)
	}
}

func resolveName(q types.Quote, r *names.Resolver) string {
	raw := q.Name
	overseas := isOverseas(q.Identifier)

	var name string
	if overseas || !names.Readable(raw) {
		name = r.Resolve(q.Identifier, raw, q.Symbol)
	} else {
		name = raw
	}
	if name == "" {
		name = raw
	}
	if name == "" {
		name = q.Symbol
	}
	if name == "" {
		name = q.Identifier
	}

	// second pass over the chosen name
	predefined := func() string {
		if q.Identifier != "" {
			if n := r.Resolve(q.Identifier, name, q.CanonicalCode); n != "" {
				return n
			}
		}
		return r.Resolve(q.CanonicalCode, name, q.CanonicalCode)
	}
	garbled := names.IsGarbled(name) && name != q.CanonicalCode
	if garbled || strings.TrimSpace(name) == "" {
		if n := predefined(); n != "" {
			return n
		}
	}
	if overseas {
		if n := r.Resolve(q.Identifier, name, q.CanonicalCode); n != "" {
			return n
		}
		if n := r.Resolve(q.CanonicalCode, name, q.CanonicalCode); n != "" {
			return n
		}
	}
	if !names.HasCJK(name) && names.IsEnglishTitle(name) {
		if n := predefined(); n != "" {
			return n
		}
	}
	return name
}
