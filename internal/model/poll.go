package model

import "time"

// Poll is the sub-document embedded in a message of kind=poll.
// TotalVotes is derived state, recomputed as the sum of option vote-set sizes
// after every mutation.
type Poll struct {
	Question    string       `json:"question" bson:"question"`
	Options     []PollOption `json:"options" bson:"options"`
	MultiSelect bool         `json:"multiSelect" bson:"multi_select"`
	ExpiresAt   *time.Time   `json:"expiresAt,omitempty" bson:"expires_at,omitempty"`
	Closed      bool         `json:"closed" bson:"closed"`
	TotalVotes  int          `json:"totalVotes" bson:"total_votes"`
}

// PollOption is a single votable option. Votes holds the ids of users whose
// current vote includes this option.
type PollOption struct {
	Text  string   `json:"text" bson:"text"`
	Votes []string `json:"votes" bson:"votes"`
}
