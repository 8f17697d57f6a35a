// Package playlist assembles the ordered structures a playlist consumer
// actually wants — track lists and folder trees — out of the flat rows the
// database package hands back one at a time.
package playlist

import (
	"sort"

	"github.com/crateindex/exportdb/internal/models"
	"github.com/crateindex/exportdb/internal/xerrors"
)

// TrackList is one playlist's or history session's ordered track IDs,
// indexed by entry_index. A zero entry marks a hole where no
// PlaylistEntryRow claimed that index (§4.5).
type TrackList []uint32

// BuildTrackLists groups PlaylistEntryRows by PlaylistID and orders each
// group by EntryIndex, producing a dense list of length max(EntryIndex)+1
// per playlist. A duplicate EntryIndex within one playlist is reported as a
// warning; the later-scanned entry wins.
func BuildTrackLists(entries []models.PlaylistEntry) (map[uint32]TrackList, []error) {
	var warnings []error

	byPlaylist := make(map[uint32][]models.PlaylistEntry)
	for _, e := range entries {
		byPlaylist[e.PlaylistID] = append(byPlaylist[e.PlaylistID], e)
	}

	lists := make(map[uint32]TrackList, len(byPlaylist))
	for playlistID, group := range byPlaylist {
		sort.SliceStable(group, func(i, j int) bool { return group[i].EntryIndex < group[j].EntryIndex })

		var maxIndex uint32
		for _, e := range group {
			if e.EntryIndex > maxIndex {
				maxIndex = e.EntryIndex
			}
		}

		list := make(TrackList, maxIndex+1)
		seen := make(map[uint32]bool, len(group))
		for _, e := range group {
			if seen[e.EntryIndex] {
				warnings = append(warnings, xerrors.MalformedRowf(
					"playlist %d: duplicate entry_index %d", playlistID, e.EntryIndex))
			}
			seen[e.EntryIndex] = true
			list[e.EntryIndex] = e.TrackID
		}
		lists[playlistID] = list
	}

	return lists, warnings
}

// Node is one playlist-tree entry with its children attached, sorted by
// SortOrder, ready for a caller to walk depth-first.
type Node struct {
	models.PlaylistTree
	Children []*Node
}

// BuildTree assembles the folder/playlist hierarchy from the flat set of
// PlaylistTreeRows, rooting nodes whose ParentID has no corresponding row
// directly under a synthetic root (ID 0, per the format's own convention
// of using ID 0 to mean "no parent").
func BuildTree(rows []models.PlaylistTree) *Node {
	byID := make(map[uint32]*Node, len(rows))
	for _, r := range rows {
		byID[r.ID] = &Node{PlaylistTree: r}
	}

	root := &Node{PlaylistTree: models.PlaylistTree{IsFolder: true}}
	for _, r := range rows {
		n := byID[r.ID]
		parent, ok := byID[r.ParentID]
		if !ok || r.ParentID == r.ID {
			parent = root
		}
		parent.Children = append(parent.Children, n)
	}

	sortChildren(root)
	return root
}

func sortChildren(n *Node) {
	sort.Slice(n.Children, func(i, j int) bool {
		return n.Children[i].SortOrder < n.Children[j].SortOrder
	})
	for _, c := range n.Children {
		sortChildren(c)
	}
}

// BuildHistoryLists orders each history session's entries the same way a
// live playlist's are ordered; history sessions never nest, so no tree is
// needed alongside it.
func BuildHistoryLists(entries []models.HistoryEntry) (map[uint32]TrackList, []error) {
	return BuildTrackLists(entries)
}
