// Package notification gửi thông báo pipeline (video kẹt, chuyển trạng thái quan trọng)
// ra ngoài qua RabbitMQ. Gửi là best-effort: lỗi publish chỉ được log, không fail nghiệp vụ.
package notification

import (
	"context"
	"encoding/json"
	"time"

	"content_pipeline/internal/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Dispatcher là interface gửi thông báo cho một người dùng về một video
type Dispatcher interface {
	Notify(ctx context.Context, userID string, eventType string, videoID string, payload map[string]interface{}) error
	Close() error
}

// message là format JSON publish lên exchange
type message struct {
	UserID    string                 `json:"user_id"`
	EventType string                 `json:"event_type"`
	VideoID   string                 `json:"video_id"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// ====================================
// AMQP DISPATCHER
// ====================================

// amqpDispatcher publish thông báo lên một topic exchange của RabbitMQ.
// Routing key: pipeline.<event_type> để consumer bind theo loại sự kiện.
type amqpDispatcher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewAMQPDispatcher kết nối RabbitMQ và declare exchange
func NewAMQPDispatcher(amqpURL string, exchange string) (Dispatcher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &amqpDispatcher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
	}, nil
}

// Notify publish thông báo lên exchange
func (d *amqpDispatcher) Notify(ctx context.Context, userID string, eventType string, videoID string, payload map[string]interface{}) error {
	body, err := json.Marshal(message{
		UserID:    userID,
		EventType: eventType,
		VideoID:   videoID,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}

	return d.channel.PublishWithContext(ctx,
		d.exchange,
		"pipeline."+eventType,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
}

// Close đóng channel và connection
func (d *amqpDispatcher) Close() error {
	if err := d.channel.Close(); err != nil {
		return err
	}
	return d.conn.Close()
}

// ====================================
// LOG DISPATCHER (FALLBACK)
// ====================================

// logDispatcher ghi thông báo ra app log thay vì gửi đi.
// Dùng khi AMQP_URL không được cấu hình (môi trường dev, test).
type logDispatcher struct{}

// Notify ghi thông báo ra log
func (d *logDispatcher) Notify(ctx context.Context, userID string, eventType string, videoID string, payload map[string]interface{}) error {
	logger.GetAppLogger().WithFields(logrus.Fields{
		"user_id":    userID,
		"event_type": eventType,
		"video_id":   videoID,
		"payload":    payload,
	}).Info("Notification (log dispatcher)")
	return nil
}

// Close không làm gì
func (d *logDispatcher) Close() error {
	return nil
}

// NewDispatcher tạo dispatcher phù hợp với cấu hình.
// amqpURL rỗng hoặc kết nối thất bại thì fallback về log dispatcher.
func NewDispatcher(amqpURL string, exchange string) Dispatcher {
	if amqpURL == "" {
		logger.GetAppLogger().Info("AMQP_URL không được cấu hình, dùng log dispatcher cho notification")
		return &logDispatcher{}
	}

	d, err := NewAMQPDispatcher(amqpURL, exchange)
	if err != nil {
		logger.GetAppLogger().WithError(err).Warn("Không kết nối được RabbitMQ, fallback về log dispatcher")
		return &logDispatcher{}
	}

	logger.GetAppLogger().WithFields(logrus.Fields{
		"exchange": exchange,
	}).Info("Đã kết nối RabbitMQ cho notification dispatcher")
	return d
}
