// Package shared holds helpers used by more than one layer of PredictFlow.
//
// The testutil subpackage provides a buffered slog handler for asserting on
// log output and fixtures that build trained models and tabular files for
// service, transport and application tests.
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    m := testutil.TrainedModel(t)
//	    ...
//	    assert.True(t, logs.ContainsMessage("prediction completed"))
//	}
package shared
