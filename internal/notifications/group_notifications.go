package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/9ssi7/exponent"

	"travelmate/internal/domain/pushtokens"
)

var ErrNoTokens = errors.New("no push tokens")

// SendJoinRequestToAdmin tells the group admin that requesterName asked to join.
func SendJoinRequestToAdmin(ctx context.Context, push PushSender, tokens pushtokens.Store, adminID, groupID, requesterName string) error {
	title := "New join request"
	body := fmt.Sprintf("%s wants to join your trip", requesterName)
	data := map[string]string{
		"type":     "group_join_request",
		"group_id": groupID,
		"screen":   fmt.Sprintf("groups/%s/requests", groupID),
	}
	return sendToUser(ctx, push, tokens, adminID, title, body, data)
}

// SendJoinDecision tells the requester whether the admin approved the request.
func SendJoinDecision(ctx context.Context, push PushSender, tokens pushtokens.Store, userID, groupID, destination string, approved bool) error {
	title := "Join request declined"
	body := fmt.Sprintf("Your request to join the trip to %s was declined", destination)
	event := "rejected"
	if approved {
		title = "You're in!"
		body = fmt.Sprintf("Your request to join the trip to %s was approved 🎉", destination)
		event = "approved"
	}
	data := map[string]string{
		"type":     "group_join_decision",
		"event":    event,
		"group_id": groupID,
		"screen":   fmt.Sprintf("groups/%s", groupID),
	}
	return sendToUser(ctx, push, tokens, userID, title, body, data)
}

func sendToUser(ctx context.Context, push PushSender, store pushtokens.Store, userID, title, body string, data map[string]string) error {
	tokensMap, err := store.TokensByUserIDs(ctx, []string{userID})
	if err != nil {
		return err
	}
	tokens := dedupe(tokensMap[userID])
	if len(tokens) == 0 {
		return ErrNoTokens
	}

	msgs := make([]*exponent.Message, 0, len(tokens))
	for _, t := range tokens {
		token := exponent.Token(t)
		msgs = append(msgs, &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: title,
			Body:  body,
			// client does router.push(`/${data.screen}`) on tap
			Data: data,
		})
	}

	if _, err := push.Publish(ctx, msgs); err != nil {
		return fmt.Errorf("publish to %s: %w", userID, err)
	}
	return nil
}
