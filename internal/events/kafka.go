package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/TGOSS1984/ashen-emporium/internal/logger"
)

// KafkaPublisher は注文イベントをトピックへ書く。
// 同じ注文のイベントが同じパーティションに並ぶようkeyはorder_id。
type KafkaPublisher struct {
	w *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt OrderEvent) {
	value, err := json.Marshal(evt)
	if err != nil {
		logger.Error("marshal order event", zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(evt.OrderID, 10)),
		Value: value,
		Time:  time.Now(),
	}

	if err := p.w.WriteMessages(ctx, msg); err != nil {
		//発行失敗はログのみ。注文処理は既にコミット済み。
		logger.Error("publish order event",
			zap.String("type", evt.Type),
			zap.Int64("order_id", evt.OrderID),
			zap.Error(err),
		)
	}
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
