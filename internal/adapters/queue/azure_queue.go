package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"habitflow/internal/core/workers"
)

const pollInterval = time.Second

// Client wraps an Azure Storage Queue for report-trigger messages. The API
// uses it as a producer; the report worker as a consumer.
type Client struct {
	queue *azqueue.QueueClient
	log   *logrus.Entry
}

func NewClient(connStr, queueName string, log *logrus.Logger) (*Client, error) {
	opts := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	qc, err := azqueue.NewQueueClientFromConnectionString(connStr, queueName, &opts)
	if err != nil {
		return nil, fmt.Errorf("create queue client for %s: %w", queueName, err)
	}
	return &Client{
		queue: qc,
		log:   log.WithField("component", "report_queue"),
	}, nil
}

type triggerBody struct {
	UserID      string `json:"user_id"`
	RequestTime string `json:"request_time"`
}

// SendReportTrigger enqueues a report-generation request for the user.
func (c *Client) SendReportTrigger(ctx context.Context, userID uuid.UUID) error {
	body := triggerBody{
		UserID:      userID.String(),
		RequestTime: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal report trigger: %w", err)
	}

	if _, err := c.queue.EnqueueMessage(ctx, string(data), nil); err != nil {
		return fmt.Errorf("enqueue report trigger for user %s: %w", userID, err)
	}
	c.log.Infof("report trigger enqueued for user %s", userID)
	return nil
}

// Receive polls for up to maxMessages, waiting at most wait before
// returning an empty batch. Azure queues have no server-side long poll, so
// the bounded wait is implemented by polling with a short sleep.
func (c *Client) Receive(ctx context.Context, maxMessages int32, wait time.Duration) ([]workers.Message, error) {
	deadline := time.Now().Add(wait)

	for {
		resp, err := c.queue.DequeueMessages(ctx, &azqueue.DequeueMessagesOptions{
			NumberOfMessages: &maxMessages,
		})
		if err != nil {
			return nil, fmt.Errorf("dequeue messages: %w", err)
		}

		if len(resp.Messages) > 0 {
			batch := make([]workers.Message, 0, len(resp.Messages))
			for _, m := range resp.Messages {
				batch = append(batch, workers.Message{
					ID:      deref(m.MessageID),
					Receipt: deref(m.PopReceipt),
					Body:    deref(m.MessageText),
				})
			}
			return batch, nil
		}

		if !time.Now().Add(pollInterval).Before(deadline) {
			return nil, nil
		}
		select {
		case <-time.After(pollInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Delete acknowledges the message, permanently removing it from the queue.
func (c *Client) Delete(ctx context.Context, msg workers.Message) error {
	if _, err := c.queue.DeleteMessage(ctx, msg.ID, msg.Receipt, nil); err != nil {
		return fmt.Errorf("delete message %s: %w", msg.ID, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
