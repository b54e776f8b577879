package service

import "sort"

// ConversationSeparator joins the two participant ids. User ids never
// contain it, which is what keeps ConversationID collision-free.
const ConversationSeparator = "_"

// ConversationID derives the id both parties of a two-party conversation
// compute independently: the two ids sorted and joined.
func ConversationID(a, b string) string {
	ids := SortedParticipants(a, b)
	return ids[0] + ConversationSeparator + ids[1]
}

// SortedParticipants is the participants array stored on the conversation.
func SortedParticipants(a, b string) []string {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids
}
