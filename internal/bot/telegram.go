package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"liquidity-bands/internal/domain"
	"liquidity-bands/internal/service"

	tele "gopkg.in/telebot.v3"
)

func StartTelegramBot(recommendations *service.RecommendationService) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/bands", func(c tele.Context) error {
		rec, err := recommendations.GetRecommendations(context.Background(), service.Options{})
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching bands: %v", err))
		}
		return c.Send(formatBands(rec))
	})

	b.Handle("/refresh", func(c tele.Context) error {
		rec, err := recommendations.GetRecommendations(context.Background(), service.Options{Refresh: true})
		if err != nil {
			return c.Send(fmt.Sprintf("Error refreshing bands: %v", err))
		}
		return c.Send("Refreshed.\n" + formatBands(rec))
	})

	log.Println("Telegram bot started")
	go b.Start()
}

func formatBands(rec *domain.Recommendation) string {
	if rec == nil || len(rec.TopLiquidityBands) == 0 {
		return "No liquidity bands available"
	}

	var sb strings.Builder
	sb.WriteString("Top WETH/USDT liquidity bands\n")
	for i, band := range rec.TopLiquidityBands {
		sb.WriteString(fmt.Sprintf(
			"%d. %.2f - %.2f USDT | liquidity $%.0f | %d positions",
			i+1, band.PriceLower, band.PriceUpper, band.TotalLiquidity, band.CountNFTs,
		))
		if band.TradingVolume24h != nil {
			sb.WriteString(fmt.Sprintf(" | 24h vol $%.0f", *band.TradingVolume24h))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("Based on %d positions over %dh", rec.Metadata.TotalPositions, rec.Metadata.TimeRangeHours))
	return sb.String()
}
