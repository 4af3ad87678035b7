package database

// Database aggregates all repositories over a shared connection pool. It is
// constructed once at startup and injected into the service layer; there is
// no module-level singleton.
type Database struct {
	pool     *Pool
	blogRepo *BlogRepo
	userRepo *UserRepo
}

func New(pool *Pool) Database {
	return Database{
		pool:     pool,
		blogRepo: NewBlogRepo(pool),
		userRepo: NewUserRepo(pool),
	}
}

// Accessor methods for each repository

func (d Database) BlogRepo() *BlogRepo {
	return d.blogRepo
}

func (d Database) UserRepo() *UserRepo {
	return d.userRepo
}

func (d Database) Pool() *Pool {
	return d.pool
}
