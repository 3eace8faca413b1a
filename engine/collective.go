package engine

import "github.com/ftahirops/waitscope/model"

// resolveCollectiveInfo builds the CollectiveInfo snapshot for myEnd's
// operation by scanning every participant's BEGIN/END registered under the
// same CollID (§2 "Control flow between locations"). Returns nil if myEnd
// has no matching BEGIN or the group is otherwise incomplete.
func resolveCollectiveInfo(global *model.Trace, myEnd *model.Event) *CollectiveInfo {
	myBegin := myEnd.BeginPtr()
	if myBegin == nil || global == nil {
		return nil
	}
	group := global.CollectiveGroup(myBegin.CollID)
	if group == nil {
		return nil
	}
	info := &CollectiveInfo{My: RankTime{Rank: myBegin.MyRank, Time: myBegin.Timestamp}}

	haveEarliest, haveLatest := false, false
	for _, b := range group.Begins {
		if !haveEarliest || b.Timestamp < info.Earliest.Time {
			info.Earliest = RankTime{Rank: b.MyRank, Time: b.Timestamp}
			haveEarliest = true
		}
		if !haveLatest || b.Timestamp > info.Latest.Time {
			info.Latest = RankTime{Rank: b.MyRank, Time: b.Timestamp}
			haveLatest = true
		}
		if b.MyRank == b.Peer {
			info.Root = RankTime{Rank: b.MyRank, Time: b.Timestamp}
		}
	}
	haveEarliestEnd := false
	for _, e := range group.Ends {
		if !haveEarliestEnd || e.Timestamp < info.EarliestEnd.Time {
			info.EarliestEnd = RankTime{Rank: e.MyRank, Time: e.Timestamp}
			haveEarliestEnd = true
		}
	}
	return info
}
