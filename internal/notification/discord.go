package notification

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"webscout/pkg/normalize"
	"webscout/pkg/probe"
)

type Message struct {
	Title       string
	Description string
	Severity    string
	Fields      map[string]string
	Timestamp   time.Time
}

type NotificationClient struct {
	sg *discordgo.Session
}

func NewNotificationClient() (*NotificationClient, error) {
	token := os.Getenv("DISCORD_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN environment variable not set")
	}

	sg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}

	if err := sg.Open(); err != nil {
		return nil, err
	}

	return &NotificationClient{sg: sg}, nil
}

func (c *NotificationClient) getSeverityColor(severity string) int {
	switch severity {
	case "critical":
		return 0x8B0000
	case "high":
		return 0xFF0000
	case "medium":
		return 0xFF8C00
	case "low":
		return 0xFFD700
	case "info":
		return 0x00BFFF
	default:
		return 0x808080
	}
}

func (c *NotificationClient) Send(msg Message) error {
	if c.sg == nil {
		return fmt.Errorf("Discord client not initialized")
	}

	channelID := os.Getenv("DISCORD_CHANNEL_ID")
	if channelID == "" {
		return fmt.Errorf("DISCORD_CHANNEL_ID not set")
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	embed := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Description,
		Color:       c.getSeverityColor(msg.Severity),
		Timestamp:   msg.Timestamp.Format(time.RFC3339),
	}

	if len(msg.Fields) > 0 {
		fields := make([]*discordgo.MessageEmbedField, 0, len(msg.Fields))
		for key, value := range msg.Fields {
			fields = append(fields, &discordgo.MessageEmbedField{
				Name:   key,
				Value:  value,
				Inline: true,
			})
		}
		embed.Fields = fields
	}

	_, err := c.sg.ChannelMessageSendEmbed(channelID, embed)
	return err
}

// ScanCompleted posts a completion embed for a finished scan and, when
// high severity findings were classified, a separate alert.
func (c *NotificationClient) ScanCompleted(record *probe.ScanRecord) {
	counts := record.CountByStatus()
	failed := record.FailedProbes()

	severity := "info"
	if len(failed) > 0 {
		severity = "medium"
	}

	msg := Message{
		Title:       "Scan completed",
		Description: fmt.Sprintf("Target %s finished in %s mode", record.Target, record.Mode),
		Severity:    severity,
		Fields: map[string]string{
			"Scan ID":   record.ID,
			"Probes":    strconv.Itoa(len(record.Results)),
			"Succeeded": strconv.Itoa(counts[probe.StatusSuccess]),
			"Partial":   strconv.Itoa(counts[probe.StatusPartialSuccess]),
			"Failed":    strconv.Itoa(len(failed)),
		},
		Timestamp: record.FinishedAt,
	}
	if err := c.Send(msg); err != nil {
		return
	}

	if high := highSeverityCount(record); high > 0 {
		c.Send(Message{
			Title:       "High severity findings",
			Description: fmt.Sprintf("%d high severity findings reported for %s", high, record.Target),
			Severity:    "high",
			Fields: map[string]string{
				"Scan ID": record.ID,
				"Target":  record.Target,
			},
		})
	}
}

func highSeverityCount(record *probe.ScanRecord) int {
	total := 0
	for _, res := range record.Results {
		// The summary is map[string]int in memory and map[string]any
		// after a JSON round trip.
		switch summary := res.Structured["severity_summary"].(type) {
		case map[string]int:
			total += summary[normalize.SeverityHigh]
		case map[string]any:
			if n, ok := summary[normalize.SeverityHigh].(float64); ok {
				total += int(n)
			}
		}
	}
	return total
}

func (c *NotificationClient) Close() error {
	if c.sg != nil {
		return c.sg.Close()
	}
	return nil
}
