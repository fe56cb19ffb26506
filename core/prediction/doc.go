// Package prediction holds the heuristic estimators behind the prediction
// endpoints: charging slot availability, energy/range/service outlook and
// route candidate scoring. Every estimator is a pure function of its input;
// the only time dependency, the current hour used by the slot estimator, is
// injected through a clock.Clock.
package prediction
