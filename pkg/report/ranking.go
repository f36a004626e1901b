package report

import (
	"github.com/google/btree"

	"studenttracker/pkg/core"
)

// Standing is one row of a subject ranking.
type Standing struct {
	Rank      int
	SRN       string
	Name      string
	FinalMark float64
}

type rankItem struct {
	srn   string
	name  string
	final float64
}

// Higher marks first, SRN breaks ties.
func rankLess(a, b rankItem) bool {
	if a.final != b.final {
		return a.final > b.final
	}
	return a.srn < b.srn
}

// RankSubject orders every student with a complete final mark for subject.
// Students tied on mark share a rank; the next rank skips accordingly.
func RankSubject(students *core.StudentStore, subject string) []Standing {
	tree := btree.NewG[rankItem](16, rankLess)
	students.Walk(func(st *core.Student) bool {
		r := Subject(st, subject)
		if r.FinalMark.Available {
			tree.ReplaceOrInsert(rankItem{srn: st.SRN(), name: st.Name, final: r.FinalMark.Value})
		}
		return true
	})

	out := make([]Standing, 0, tree.Len())
	tree.Ascend(func(it rankItem) bool {
		rank := len(out) + 1
		if n := len(out); n > 0 && out[n-1].FinalMark == it.final {
			rank = out[n-1].Rank
		}
		out = append(out, Standing{Rank: rank, SRN: it.srn, Name: it.name, FinalMark: it.final})
		return true
	})
	return out
}
