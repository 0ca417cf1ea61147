package repositories

// Models lists every table owned by the account store, in creation order.
func Models() []interface{} {
	return []interface{}{
		&DBUser{},
		&DBAdmin{},
		&DBCustomer{},
		&DBPendingUser{},
		&DBToken{},
		&DBCode{},
		&DBSession{},
	}
}
