package postsimpl

const fetchPostsPageQuery = `
query FetchPostsPage($first: Int!, $after: Cursor) {
  posts(first: $first, after: $after, orderBy: TIMESTAMP_DESC) {
    nodes {
      postHash
      body
      extraData
      timestamp
      poster { username profilePic extraData profile { profilePic username } }
    }
    pageInfo { hasNextPage endCursor }
  }
}
`

const searchBodyQuery = `
query SearchBody($searchTerm: String!, $first: Int!) {
  posts(first: $first, filter: { body: { includesInsensitive: $searchTerm } }) {
    nodes {
      postHash
      body
      extraData
      timestamp
      poster { username profilePic extraData profile { profilePic username } }
    }
  }
}
`

const postsByExtraQuery = `
query PostsByExtra($extra: JSON!, $first: Int!) {
  posts(first: $first, filter: { extraData: { contains: $extra } }) {
    nodes { postHash body extraData timestamp poster { username profilePic profile { profilePic username } } }
  }
}
`
