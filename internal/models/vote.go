package models

import "slices"

// VoteDirection is the direction a user votes a question in.
type VoteDirection string

const (
	Upvote   VoteDirection = "upvote"
	Downvote VoteDirection = "downvote"
)

// Valid reports whether d is a known direction.
func (d VoteDirection) Valid() bool {
	return d == Upvote || d == Downvote
}

// VoteState is a single user's stance on a question: 1, -1 or 0.
type VoteState int

const (
	VoteNone VoteState = 0
	VoteUp   VoteState = 1
	VoteDown VoteState = -1
)

// VoteTally is the resulting membership of both vote sets after a vote.
type VoteTally struct {
	UpVotes   []string `json:"upVotes"`
	DownVotes []string `json:"downVotes"`
}

// ToggleVote applies a vote with toggle semantics. Voting the same direction
// twice removes the vote; voting the opposite direction moves it. The input
// slices are not modified.
func ToggleVote(up, down []string, username string, dir VoteDirection) ([]string, []string) {
	same, opposite := up, down
	if dir == Downvote {
		same, opposite = down, up
	}

	var newSame, newOpposite []string
	if slices.Contains(same, username) {
		newSame = without(same, username)
		newOpposite = append([]string{}, opposite...)
	} else {
		newSame = append(slices.Clone(same), username)
		newOpposite = without(opposite, username)
	}

	if dir == Downvote {
		return newOpposite, newSame
	}
	return newSame, newOpposite
}

// ApplyVote toggles username's vote on the question.
func (q *Question) ApplyVote(username string, dir VoteDirection) VoteTally {
	up, down := ToggleVote(q.UpVotes, q.DownVotes, username, dir)
	q.UpVotes, q.DownVotes = up, down
	return VoteTally{UpVotes: up, DownVotes: down}
}

// VoteCount is the displayed score: upvotes minus downvotes.
func VoteCount(up, down []string) int {
	return len(up) - len(down)
}

// VoteStateOf reports username's stance given both vote sets.
func VoteStateOf(up, down []string, username string) VoteState {
	switch {
	case username == "":
		return VoteNone
	case slices.Contains(up, username):
		return VoteUp
	case slices.Contains(down, username):
		return VoteDown
	default:
		return VoteNone
	}
}

func without(list []string, username string) []string {
	out := make([]string, 0, len(list))
	for _, u := range list {
		if u != username {
			out = append(out, u)
		}
	}
	return out
}
