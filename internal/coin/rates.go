package coin

// Reward rates and price tables for the Mercury Coin economy.

const (
	// EventKindTextMessage is the only chat event kind that earns coins.
	EventKindTextMessage = "textMessageEvent"

	// OvertimeCostPerHour is the price of one hour of stream overtime.
	OvertimeCostPerHour int64 = 1000

	MinBoosterLevel = 2
	MaxBoosterLevel = 9

	MinOvertimeHours = 1
	MaxOvertimeHours = 24
)

// perMessageCoin is the coin earned for each message sent, unless otherwise
// specified. Guarded by dailyQuota.
func perMessageCoin(isSponsor bool) int64 {
	if isSponsor {
		return 2
	}
	return 1
}

// firstMessageCoin is the coin earned for the first message sent each day.
// Guarded by dailyQuota.
func firstMessageCoin(isSponsor bool) int64 {
	if isSponsor {
		return 20
	}
	return 10
}

// dailyQuota is the maximum coin earned for a day.
func dailyQuota(isSponsor bool) int64 {
	if isSponsor {
		return 100
	}
	return 50
}

// BoosterCost returns the price of a penalty booster at the given level.
// Levels double in price from 50 at level 2 up to 6400 at level 9; ok is
// false outside that range.
func BoosterCost(level int64) (cost int64, ok bool) {
	if level < MinBoosterLevel || level > MaxBoosterLevel {
		return 0, false
	}
	return 50 << (level - MinBoosterLevel), true
}

// OvertimeCost returns the price of the given number of overtime hours; ok
// is false outside 1-24.
func OvertimeCost(hours int64) (cost int64, ok bool) {
	if hours < MinOvertimeHours || hours > MaxOvertimeHours {
		return 0, false
	}
	return hours * OvertimeCostPerHour, true
}
