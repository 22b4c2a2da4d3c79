package config

import (
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// SetupTopics creates the pipeline's own Kafka topics (input, dead-letter,
// KPI) if they don't already exist. The broker connection is tried up to
// five times with a doubling delay; if every attempt fails, the failure is
// logged and no topics are created.
func SetupTopics(brokerAddress, inputTopic, deadLetterTopic, kpiTopic string) {
	topics := []kafka.TopicConfig{
		{
			Topic:             inputTopic,
			NumPartitions:     1,
			ReplicationFactor: 1,
			ConfigEntries: []kafka.ConfigEntry{
				{ConfigName: "retention.ms", ConfigValue: "259200000"}, // 3 days
			},
		},
		{
			Topic:             deadLetterTopic,
			NumPartitions:     1,
			ReplicationFactor: 1,
			ConfigEntries: []kafka.ConfigEntry{
				{ConfigName: "retention.ms", ConfigValue: "259200000"},
			},
		},
		{
			Topic:             kpiTopic,
			NumPartitions:     1,
			ReplicationFactor: 1,
			ConfigEntries: []kafka.ConfigEntry{
				{ConfigName: "retention.ms", ConfigValue: "604800000"}, // 7 days
			},
		},
	}

	var conn *kafka.Conn
	var err error
	maxRetries := 5
	retryDelay := time.Second * 2

	for i := 0; i < maxRetries; i++ {
		conn, err = kafka.Dial("tcp", brokerAddress)
		if err == nil {
			break
		}
		log.Printf("setup_topics: attempt %d: failed to connect to broker: %v, retrying in %v", i+1, err, retryDelay)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
			retryDelay *= 2
		}
	}
	if err != nil {
		log.Printf("setup_topics: failed to connect after %d attempts: %v", maxRetries, err)
		return
	}
	defer conn.Close()

	for _, topic := range topics {
		if err := conn.CreateTopics(topic); err != nil {
			if err.Error() == "kafka server: Topic already exists." {
				log.Printf("setup_topics: topic %s already exists", topic.Topic)
				continue
			}
			log.Printf("setup_topics: failed to create topic %s: %v", topic.Topic, err)
			continue
		}
		log.Printf("setup_topics: topic %s created", topic.Topic)
	}
}
