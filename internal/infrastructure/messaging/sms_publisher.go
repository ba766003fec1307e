// Package messaging 通过 MQTT 向短信网关投递短信验证码。
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/flowerfire37/ihome/internal/infrastructure/config"
	Logger "github.com/flowerfire37/ihome/pkg/logger"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// SMSMessage 发布到短信网关主题的消息
type SMSMessage struct {
	RequestID     string `json:"request_id"`
	Mobile        string `json:"mobile"`
	Code          string `json:"code"`
	ExpireMinutes int    `json:"expire_minutes"`
	Timestamp     int64  `json:"timestamp"`
}

// SMSPublisher 短信网关订阅 Topic 并负责实际发送
type SMSPublisher struct {
	Client     mqtt.Client
	Topic      string
	BrokerURL  string
	MaxRetries int

	connMu sync.Mutex
}

// NewSMSPublisher 创建短信发布者，不立即连接
func NewSMSPublisher(cfg *config.Config) *SMSPublisher {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBrokerURL)
	// 多实例部署时客户端ID不能重复
	opts.SetClientID(fmt.Sprintf("%s-%s", cfg.MQTTClientID, uuid.New().String()[:8]))
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)
	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
		opts.SetPassword(cfg.MQTTPassword)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		Logger.Warning("[MQTT] 连接丢失: %v", err)
	})
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		Logger.Info("[MQTT] 成功连接到 %s", cfg.MQTTBrokerURL)
	})

	return NewSMSPublisherWithClient(mqtt.NewClient(opts), cfg.MQTTSMSTopic, cfg.MQTTBrokerURL)
}

// NewSMSPublisherWithClient 使用已有客户端
func NewSMSPublisherWithClient(client mqtt.Client, topic, brokerURL string) *SMSPublisher {
	return &SMSPublisher{
		Client:     client,
		Topic:      topic,
		BrokerURL:  brokerURL,
		MaxRetries: 3,
	}
}

// Connect 连接到MQTT服务器，指数退避重试
func (p *SMSPublisher) Connect(ctx context.Context) error {
	p.connMu.Lock()
	defer p.connMu.Unlock()

	if p.Client.IsConnected() {
		return nil
	}

	var err error
	for i := 0; i < p.MaxRetries; i++ {
		token := p.Client.Connect()
		if token.WaitTimeout(5*time.Second) && token.Error() == nil {
			return nil
		}
		err = token.Error()
		if err == nil {
			err = fmt.Errorf("连接超时")
		}

		backoff := time.Duration(1<<uint(i)) * time.Second
		Logger.Warning("[MQTT] 连接 %s 第 %d/%d 次失败: %v, %v 后重试", p.BrokerURL, i+1, p.MaxRetries, err, backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("[MQTT] 连接失败，已尝试 %d 次: %v", p.MaxRetries, err)
}

// SendSMS 发布验证码消息，QoS 1
func (p *SMSPublisher) SendSMS(ctx context.Context, mobile, code string, ttl time.Duration) error {
	if !p.Client.IsConnected() {
		if err := p.Connect(ctx); err != nil {
			return err
		}
	}

	payload, err := json.Marshal(SMSMessage{
		RequestID:     uuid.New().String(),
		Mobile:        mobile,
		Code:          code,
		ExpireMinutes: int(ttl / time.Minute),
		Timestamp:     time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("序列化短信消息失败: %v", err)
	}

	token := p.Client.Publish(p.Topic, 1, false, payload)
	if !token.WaitTimeout(3 * time.Second) {
		return fmt.Errorf("发布短信消息超时")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("发布短信消息失败: %v", err)
	}

	Logger.Info("[MQTT] 已发布短信验证码到 %s, 手机号 %s", p.Topic, maskMobile(mobile))
	return nil
}

// Disconnect 断开连接，等待未完成的消息
func (p *SMSPublisher) Disconnect() {
	if p.Client.IsConnected() {
		p.Client.Disconnect(250)
	}
}

// maskMobile 日志中隐藏手机号中间四位
func maskMobile(mobile string) string {
	if len(mobile) != 11 {
		return mobile
	}
	return mobile[:3] + strings.Repeat("*", 4) + mobile[7:]
}
