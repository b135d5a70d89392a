// Package engine evaluates assembled calc modules with wazero.
//
// An Engine owns one wazero runtime. Eval compiles a module, instantiates
// it anonymously, calls its "calc" export and returns the typed result:
//
//	eng, err := engine.New(ctx)
//	if err != nil {
//		return err
//	}
//	defer eng.Close(ctx)
//
//	v, err := eng.Eval(ctx, bin)
//	fmt.Println(v) // 5
//
// The runtime is created with CloseOnContextDone, so a canceled or
// expired context terminates a running call. Traps, timeouts and
// cancellation come back as *errors.Error values in PhaseRuntime.
package engine
