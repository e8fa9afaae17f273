package domain

import "sort"

// Favorites maps a host to how its star was established. Manual entries
// come from explicit user action and are never retracted by inference.
// Not safe for concurrent use; the owner serializes access.
type Favorites map[string]FavoriteSource

func (f Favorites) IsFavorite(host string) bool {
	_, ok := f[host]
	return ok
}

// Source returns the favorite's source and whether host is favorited.
func (f Favorites) Source(host string) (FavoriteSource, bool) {
	src, ok := f[host]
	return src, ok
}

// SetManual records an explicit star. It upgrades an inferred entry.
func (f Favorites) SetManual(host string) bool {
	if f[host] == FavoriteManual {
		return false
	}
	f[host] = FavoriteManual
	return true
}

// Remove deletes a favorite regardless of source.
func (f Favorites) Remove(host string) bool {
	if _, ok := f[host]; !ok {
		return false
	}
	delete(f, host)
	return true
}

// Infer adds an inferred favorite when host is not yet favorited.
func (f Favorites) Infer(host string) bool {
	if _, ok := f[host]; ok {
		return false
	}
	f[host] = FavoriteInferred
	return true
}

// Retract removes host only when the favorite was inferred.
func (f Favorites) Retract(host string) bool {
	if f[host] != FavoriteInferred {
		return false
	}
	delete(f, host)
	return true
}

// Hosts returns the favorited hosts in sorted order.
func (f Favorites) Hosts() []string {
	hosts := make([]string, 0, len(f))
	for h := range f {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}

func (f Favorites) Clone() Favorites {
	out := make(Favorites, len(f))
	for h, src := range f {
		out[h] = src
	}
	return out
}
