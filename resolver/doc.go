// Package resolver follows PDF indirect references.
//
// Objects such as "5 0 R" point at objects stored elsewhere in the file.
// A [Resolver] chases reference chains through an [ObjectReader] and
// reports [ErrCircularReference] instead of looping forever:
//
//	r := resolver.New(doc)
//	obj, err := r.Resolve(ref)
//
// [Resolver.ResolveDeep] expands every nested reference in dictionaries
// and arrays. Nesting is bounded by [WithMaxDepth] (100 by default).
package resolver
