// Package lethality computes sterilization lethality (F0) from a per-minute
// temperature series and decides whether a retort run met its holding-time
// requirement.
//
// f0.go holds the accumulation: each sample contributes
// 10^((T - ReferenceTemp) / ZValue) minutes of lethality when T is at or
// above the floor, and the curve is the running sum of contributions.
//
// holding.go holds the two holding-time policies. They are deliberately
// separate functions:
//   - consecutive: a run of MinHoldMinutes samples at/above MinHoldTemp
//     without a dip (CheckMinimumHoldingTime)
//   - total: the count of samples at/above MinHoldTemp anywhere in the
//     series (TotalMinutesAtOrAbove)
//
// Evaluate ties everything together and is pure: no I/O, no logging.
package lethality
