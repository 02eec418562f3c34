package dbhooks

// OnBeforeHook registers a listener for the before event of one model and operation.
func (c *Client) OnBeforeHook(model string, operation Operation, listener Listener) {
	c.events.SubscribeOperation(model, operation, Before, listener)
}

// OnAfterHook registers a listener for the after event of one model and operation.
func (c *Client) OnAfterHook(model string, operation Operation, listener Listener) {
	c.events.SubscribeOperation(model, operation, After, listener)
}

// OnBeforeHookForAll registers a listener for the before event of every model,
// for one operation or for AllOperations.
func (c *Client) OnBeforeHookForAll(operation Operation, listener Listener) {
	c.events.SubscribeGlobal(operation, Before, listener)
}

// OnAfterHookForAll registers a listener for the after event of every model,
// for one operation or for AllOperations.
func (c *Client) OnAfterHookForAll(operation Operation, listener Listener) {
	c.events.SubscribeGlobal(operation, After, listener)
}

// UseHook registers an argument-transforming hook for one model and operation.
func (c *Client) UseHook(model string, operation Operation, handler HookFunc) {
	c.hooks.RegisterHook(model, operation, handler)
}

// UseHookForAll registers an argument-transforming hook for every model,
// for one operation or for AllOperations.
func (c *Client) UseHookForAll(operation Operation, handler GlobalHookFunc) {
	c.hooks.RegisterGlobalHook(operation, handler)
}
