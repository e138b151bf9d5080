// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package prefix computes the shortest prefixes that keep a sorted set of
// identifiers distinguishable.
package prefix

// ✂️ ShortestUniquePrefixes returns the single prefix length that keeps every
// value unique, the values cut to that length, and each value's individual
// prefix (unique only against its immediate neighbours).
//
// values must be sorted. In a sorted slice a shared-prefix run is contiguous,
// so the longest common prefix of any two values never exceeds the longest
// one between some adjacent pair; comparing neighbours is enough.
func ShortestUniquePrefixes(values []string) (int, []string, []string) {
	if len(values) == 0 {
		return 0, []string{}, []string{}
	}

	shortest := len(values[0])
	globalLen := 1
	individual := make([]string, len(values))

	for i, cur := range values {
		shortest = min(shortest, len(cur))

		maxShared := 0
		if i > 0 {
			maxShared = max(maxShared, sharedPrefixLen(cur, values[i-1]))
		}
		if i+1 < len(values) {
			next := sharedPrefixLen(cur, values[i+1])
			maxShared = max(maxShared, next)
			globalLen = max(globalLen, next+1)
		}

		individual[i] = cur[:min(maxShared+1, len(cur))]
	}

	globalLen = min(globalLen, shortest)

	global := make([]string, len(values))
	for i, v := range values {
		global[i] = v[:globalLen]
	}

	return globalLen, global, individual
}

func sharedPrefixLen(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
