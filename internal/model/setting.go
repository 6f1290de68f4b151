package model

import "time"

type Setting struct {
	Key         string    `json:"key" db:"key"`
	Value       string    `json:"value" db:"value"`
	Description *string   `json:"description,omitempty" db:"description"`
	Version     int64     `json:"version" db:"version"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Setting keys read by the reward rules.
const (
	SettingWelcomeBonus          = "welcome_bonus_points"
	SettingPointsPerReferral     = "points_per_referral"
	SettingReferralBonusReferred = "referral_bonus_referred"
	SettingMinWithdrawalPoints   = "min_withdrawal_points"
	SettingMaxPendingWithdrawals = "max_pending_withdrawals"
	SettingUSDTConversionRate    = "usdt_conversion_rate"
	SettingTONConversionRate     = "ton_conversion_rate"
	SettingStarsConversionRate   = "stars_conversion_rate"
	SettingDailyBaseReward       = "daily_base_reward"
	SettingDailyStreakStep       = "daily_streak_step"
	SettingDailyStreakCap        = "daily_streak_cap"
	SettingSpinDailyLimit        = "spin_daily_limit"
	SettingAdHourlyLimit         = "ad_hourly_limit"
	SettingAdRewardMax           = "ad_reward_max"
	SettingSpinJackpotChance     = "spin_jackpot_chance"
)

// SettingDefault is the value used when a key is absent or unparsable.
type SettingDefault struct {
	Value       string
	Description string
	Numeric     bool
}

// DefaultSettings documents every key and its fallback value.
var DefaultSettings = map[string]SettingDefault{
	SettingWelcomeBonus:          {"1000", "Points credited to every new account", true},
	SettingPointsPerReferral:     {"1000", "Points credited to the inviter per referral", true},
	SettingReferralBonusReferred: {"500", "Points credited to the invited user", true},
	SettingMinWithdrawalPoints:   {"10000", "Smallest withdrawal request in points", true},
	SettingMaxPendingWithdrawals: {"3", "Pending withdrawals allowed per user", true},
	SettingUSDTConversionRate:    {"1000", "Points per 1 USDT", true},
	SettingTONConversionRate:     {"5000", "Points per 1 TON", true},
	SettingStarsConversionRate:   {"100", "Points per 1 Telegram Star", true},
	SettingDailyBaseReward:       {"100", "Base points of the daily claim", true},
	SettingDailyStreakStep:       {"10", "Extra points per streak day", true},
	SettingDailyStreakCap:        {"500", "Maximum streak bonus", true},
	SettingSpinDailyLimit:        {"3", "Spins per UTC day", true},
	SettingAdHourlyLimit:         {"10", "Ad views per rolling hour", true},
	SettingAdRewardMax:           {"1000", "Largest reward a single ad view may credit", true},
	SettingSpinJackpotChance:     {"0.05", "Informational: chance of the 1000 points bucket", true},
}
