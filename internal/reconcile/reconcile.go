// Package reconcile computes, for one sync pass, the single action each
// path requires by comparing the local snapshot, the remote snapshot, and
// the journal's record of the last reconciled state.
package reconcile

import (
	"sort"

	"github.com/tonimelisma/cloudsync/internal/journal"
	"github.com/tonimelisma/cloudsync/internal/localfs"
	"github.com/tonimelisma/cloudsync/internal/remote"
)

// Action names the one thing the executor must do for a path.
type Action string

const (
	ActionRemoveLocalAndTombstone      Action = "remove_local_and_tombstone"
	ActionSoftDeleteRemoteAndTombstone Action = "soft_delete_remote_and_tombstone"
	ActionConflict                     Action = "conflict"
	ActionUpload                       Action = "upload"
	ActionDownload                     Action = "download"
	ActionNoop                         Action = "noop"
)

// Decision is one path's outcome: the action plus the inputs that produced
// it, so the executor has everything it needs without re-deriving state.
type Decision struct {
	RelPath   string
	Action    Action
	Local     *localfs.File
	Remote    *remote.File
	Entry     *journal.Entry
	Tombstone *journal.Tombstone

	// InsertTombstone is set on ActionRemoveLocalAndTombstone and
	// ActionSoftDeleteRemoteAndTombstone when no tombstone exists yet and
	// the executor must insert one alongside the delete/soft-delete.
	InsertTombstone bool

	// ClearTombstone is set when a tombstone resurrected (§9): the local
	// file reappeared with a newer mtime than the recorded deletion. The
	// executor must clear the old tombstone before acting on Action.
	ClearTombstone bool
}

// Inputs bundles one pass's four per-path lookups.
type Inputs struct {
	LocalMap     map[string]localfs.File
	RemoteMap    map[string]remote.File
	EntryMap     map[string]journal.Entry
	TombstoneMap map[string]journal.Tombstone
}

// Reconcile computes one Decision per path in the sorted, deduplicated
// union of all four maps' keys, so repeated passes over the same snapshots
// always produce the same action order.
func Reconcile(in Inputs) []Decision {
	paths := in.unionKeys()

	decisions := make([]Decision, 0, len(paths))

	for _, path := range paths {
		decisions = append(decisions, decide(path, in))
	}

	return decisions
}

func decide(path string, in Inputs) Decision {
	l, hasL := in.LocalMap[path]
	r, hasR := in.RemoteMap[path]
	e, hasE := in.EntryMap[path]
	t, hasT := in.TombstoneMap[path]

	var L *localfs.File
	if hasL {
		L = &l
	}

	var R *remote.File
	if hasR {
		R = &r
	}

	var E *journal.Entry
	if hasE {
		E = &e
	}

	var T *journal.Tombstone
	if hasT {
		T = &t
	}

	// Tombstone resurrection (§9 open question): a local file observed
	// strictly newer than the recorded deletion clears the tombstone and
	// is treated as a fresh local write, bypassing the delete-sync rows.
	if T != nil && L != nil && L.MtimeMs > T.DeletedAtMs {
		d := decideTable(path, L, R, E, nil)
		d.ClearTombstone = true

		return d
	}

	return decideTable(path, L, R, E, T)
}

func decideTable(path string, L *localfs.File, R *remote.File, E *journal.Entry, T *journal.Tombstone) Decision {
	d := Decision{RelPath: path, Local: L, Remote: R, Entry: E, Tombstone: T}

	localChanged := L != nil && (E == nil || L.Hash != E.LastLocalHash || L.MtimeMs != E.LastLocalMtimeMs)
	remoteChanged := R != nil && (E == nil || R.Hash != E.LastRemoteHash || R.MtimeMs != E.LastRemoteMtimeMs)
	remoteDeleted := R != nil && R.DeletedAtMs != 0

	switch {
	case remoteDeleted:
		d.Action = ActionRemoveLocalAndTombstone
		d.InsertTombstone = T == nil

	case L == nil && E != nil && T == nil && R != nil:
		d.Action = ActionSoftDeleteRemoteAndTombstone
		d.InsertTombstone = true

	// An existing, non-resurrected tombstone suppresses every remaining
	// row: no upload or download occurs on a path once its deletion has
	// been acknowledged (§8 invariant 2).
	case T != nil:
		d.Action = ActionNoop

	case L != nil && R != nil && E != nil && localChanged && remoteChanged && L.Hash != R.Hash:
		d.Action = ActionConflict

	case L != nil && R != nil && localChanged && (!remoteChanged || E == nil || L.MtimeMs >= R.MtimeMs):
		d.Action = ActionUpload

	case L != nil && R != nil && remoteChanged:
		d.Action = ActionDownload

	case L != nil && R == nil:
		d.Action = ActionUpload

	case L == nil && R != nil:
		d.Action = ActionDownload

	default:
		d.Action = ActionNoop
	}

	return d
}

func (in Inputs) unionKeys() []string {
	seen := make(map[string]struct{}, len(in.LocalMap)+len(in.RemoteMap))

	for k := range in.LocalMap {
		seen[k] = struct{}{}
	}

	for k := range in.RemoteMap {
		seen[k] = struct{}{}
	}

	for k := range in.EntryMap {
		seen[k] = struct{}{}
	}

	for k := range in.TombstoneMap {
		seen[k] = struct{}{}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
