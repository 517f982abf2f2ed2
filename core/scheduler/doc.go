// Package scheduler assigns trucks to chargers within a time horizon so that
// as many trucks as possible reach a full battery.
//
// The default strategy is a greedy shortest-job-first list scheduler: trucks
// are ordered by the fastest charge time they could get on any charger, then
// each is placed on the charger where it would finish earliest given the load
// already committed. UpperBound solves the LP relaxation of the same problem
// and is used to report how far a schedule is from the best achievable count.
package scheduler
