package correction

import (
	"time"

	"attendance-backend/internal/attendance"
)

// FindOverlaps は提案 [in, out) と交差する同日の確定済みセッションを入力順で全て返す。
// 編集中のセッション（excludeID）と勤務中のセッションは比較しない。
// in/out のどちらかが nil なら空。
func FindOverlaps(in, out *time.Time, excludeID uint64, sessions []attendance.Session) []attendance.Session {
	conflicts := []attendance.Session{}
	if in == nil || out == nil || !out.After(*in) {
		return conflicts
	}
	loc := in.Location()
	for _, c := range sessions {
		if c.ID == excludeID || c.CheckOutTime == nil {
			continue
		}
		if !sameDay(*in, c.CheckInTime.In(loc)) {
			continue
		}
		if in.Before(*c.CheckOutTime) && out.After(c.CheckInTime) {
			conflicts = append(conflicts, c)
		}
	}
	return conflicts
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
