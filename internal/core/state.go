package core

// MaxChatMessages bounds the retained chat log. Older messages are dropped
// from the front on append.
const MaxChatMessages = 50

type CounterState struct {
	Count       int64 `json:"count"`
	LastUpdated int64 `json:"lastUpdated"`
}

type ChatMessage struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

type VoteOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Votes int64  `json:"votes"`
}

// State is the single shared snapshot pushed to every viewer. Timestamps are
// unix milliseconds; LastUpdated stays 0 until the counter is first touched.
type State struct {
	Counter      CounterState  `json:"counter"`
	ChatMessages []ChatMessage `json:"chatMessages"`
	Votes        []VoteOption  `json:"votes"`
}

// DefaultVoteOptions returns the built-in three-option poll.
func DefaultVoteOptions() []VoteOption {
	return []VoteOption{
		{ID: "1", Label: "Option A"},
		{ID: "2", Label: "Option B"},
		{ID: "3", Label: "Option C"},
	}
}

// DefaultState returns the state used when the backing slot is empty or
// unusable. options may be nil to get the built-in poll.
func DefaultState(options []VoteOption) State {
	if len(options) == 0 {
		options = DefaultVoteOptions()
	}
	votes := make([]VoteOption, len(options))
	copy(votes, options)
	return State{
		ChatMessages: []ChatMessage{},
		Votes:        votes,
	}
}

// Normalize repairs a structurally incomplete state in place, substituting
// the given defaults field by field. It reports whether anything changed, so
// callers know the repaired value needs to be written back.
func (s *State) Normalize(defaults State) bool {
	changed := false
	if s.ChatMessages == nil {
		s.ChatMessages = []ChatMessage{}
		changed = true
	}
	if len(s.ChatMessages) > MaxChatMessages {
		s.ChatMessages = append([]ChatMessage{}, s.ChatMessages[len(s.ChatMessages)-MaxChatMessages:]...)
		changed = true
	}
	if len(s.Votes) == 0 {
		s.Votes = append([]VoteOption{}, defaults.Votes...)
		changed = true
	}
	for i := range s.Votes {
		if s.Votes[i].Votes < 0 {
			s.Votes[i].Votes = 0
			changed = true
		}
	}
	return changed
}

// AppendChat appends msg and drops from the front until the log is back
// within MaxChatMessages, preserving relative order.
func (s *State) AppendChat(msg ChatMessage) {
	s.ChatMessages = append(s.ChatMessages, msg)
	if n := len(s.ChatMessages); n > MaxChatMessages {
		s.ChatMessages = append([]ChatMessage{}, s.ChatMessages[n-MaxChatMessages:]...)
	}
}

// FindVote returns the index of the option with the given id, or -1.
func (s *State) FindVote(optionID string) int {
	for i := range s.Votes {
		if s.Votes[i].ID == optionID {
			return i
		}
	}
	return -1
}
