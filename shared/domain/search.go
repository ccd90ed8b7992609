package domain

type SortKey = string

const (
	SortDefault   SortKey = ""
	SortRelevance SortKey = "relevance"
	SortLatest    SortKey = "latest"
	SortTop       SortKey = "top"
	SortNewest    SortKey = "newest"
	SortOldest    SortKey = "oldest"
)

// Relation names something that can be eagerly attached to search results.
type Relation = string

const (
	RelationStartUser     Relation = "startUser"
	RelationLastUser      Relation = "lastUser"
	RelationStartPost     Relation = "startPost"
	RelationLastPost      Relation = "lastPost"
	RelationRelevantPosts Relation = "relevantPosts"
)

type SearchCriteria struct {
	Actor *User
	Query string
	Sort  SortKey
}

type SearchResults struct {
	Discussions    []Discussion
	AreMoreResults bool
}
